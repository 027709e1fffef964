//go:build !kbounddebug

package transfer

const checkMarkersDefault = false
