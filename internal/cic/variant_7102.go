//go:build cic7102

package cic

const activeVariantName = "7102"
