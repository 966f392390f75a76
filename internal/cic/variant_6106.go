//go:build cic6106

package cic

const activeVariantName = "6106"
