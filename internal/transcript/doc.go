// Package transcript fetches spoken-text transcripts for a single video.
//
// Providers share one contract, Provider.Fetch, and are selected by the
// transcripts.provider config key:
//   - stub: always returns an empty transcript
//   - youtube: scrapes the watch page for caption tracks and downloads the
//     best timedtext track
//   - ytdlp: shells out to yt-dlp and parses the subtitle file it writes
//
// An empty transcript with a nil error means the video has no captions.
// Errors carry services markers: a missing binary is a configuration error,
// everything else is transient so the enrichment stage can degrade.
package transcript
