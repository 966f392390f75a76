//go:build cic6103

package cic

const activeVariantName = "6103"
