//go:build cic6101

package cic

const activeVariantName = "6101"
