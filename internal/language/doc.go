// Package language normalizes language and region codes for the search,
// transcript, and translation providers.
//
// Input may be an ISO 639 code, an English word, or a BCP 47 tag; output is
// always ISO 639-1 for languages and ISO 3166-1 alpha-2 for regions.
package language
