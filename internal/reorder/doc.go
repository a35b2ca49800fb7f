// Package reorder turns free-form vertical drag gestures over the package
// list into discrete REORDER_PACKAGE actions, and eases package rows toward
// their logical slots for display.
//
// Nothing in this package touches a platform animation API. Animator
// exposes an explicit per-frame Tick that any host scheduler can call: a
// render loop, a time.Ticker via Run, or a test advancing a fake clock.
//
// Index resolution scans the packages other than the dragged one in order
// and picks the first whose center lies below the dragged center. Index 0
// is never returned while a locked package is among the others.
package reorder
