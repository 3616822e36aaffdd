// Package textutil turns free-form text such as topics into tokens that are
// safe to use in file names.
package textutil
