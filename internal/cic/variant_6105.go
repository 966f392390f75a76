//go:build cic6105

package cic

const activeVariantName = "6105"
