// Package pages holds the concrete pages of the tool and the registry the
// router resolves them through.
package pages
