// Package textutil provides the label and key helpers used when building
// snapshot entities and importing source lists.
//
// Titles are NFC-normalized before truncation so a cut never splits a
// combining sequence, and truncation counts runes, not bytes.
package textutil
