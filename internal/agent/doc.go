// Package agent runs the scheduling assistant: a chat model given the
// scheduling policy and the calendar tools, looping over tool calls until it
// produces a final reply.
//
// The model is reached through ChatCompleter, which *openai.Client satisfies.
// Any OpenAI-compatible endpoint works when a base URL is configured.
package agent
