// Package updates discovers newer marquee releases by following the
// GitHub releases/latest redirect and comparing version tags.
package updates
