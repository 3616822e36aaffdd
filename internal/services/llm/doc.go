// Package llm provides an OpenRouter-compatible chat client used to translate
// transcripts.
//
// Translate sends the transcript with a JSON-only prompt naming the target
// language and decodes {"translation": "..."} from the reply, tolerating code
// fences and stray prose around the object.
//
// Requests are retried on HTTP 408, 429, and 5xx responses, empty completions,
// and network timeouts with exponential backoff (base 1s, max 10s, up to 5
// attempts by default). A rejected key (401/403) is reported as
// services.ErrConfiguration; other failures as services.ErrTransient so the
// enrichment stage can degrade instead of aborting the run.
package llm
