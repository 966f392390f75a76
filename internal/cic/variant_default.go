//go:build !cic6101 && !cic6103 && !cic6105 && !cic6106 && !cic7102

package cic

const activeVariantName = "6102"
