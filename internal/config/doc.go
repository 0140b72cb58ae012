// Package config assembles calchat's runtime settings.
//
// Precedence, highest first: command-line flags, process environment,
// a .env file in the working directory, built-in defaults. The model API key
// may instead come from AWS SSM Parameter Store when OPENAI_API_KEY_PARAM
// names a parameter and no key was given directly.
package config
