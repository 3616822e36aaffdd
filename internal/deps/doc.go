// Package deps checks for the external executables shortscout can delegate
// to, such as yt-dlp for subtitle downloads.
package deps
