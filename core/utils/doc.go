// Package utils provides common helpers for the dem-manager application.
// It parses the bounding boxes, coordinates and scalar query parameters shared by the
// HTTP features and the CLI.
package utils
