// Package labourlens answers employment-standards questions over a
// curated corpus of policy documents.
//
// Every question runs through a single pipeline: an LLM analyzer
// classifies the query and suggests retrieval parameters, a router
// picks between tool invocation and semantic retrieval, a generator
// drafts the answer from the gathered context, and a confidence scorer
// decides whether the answer ships or escalates to a human specialist.
//
// # Quick Start
//
// Install the CLI:
//
//	go install github.com/labourlens/labourlens/cmd/labourlens@latest
//
// Create a configuration:
//
//	llms:
//	  main:
//	    type: openai
//	    model: gpt-4o
//	    api_key: ${OPENAI_API_KEY}
//	embedders:
//	  main:
//	    type: openai
//	vector_stores:
//	  main:
//	    type: qdrant
//	    host: localhost
//	    collection: policy_documents
//	escalation:
//	  threshold: 0.95
//
// Ask a question:
//
//	labourlens ask "How much notice am I owed after 4 years?" --province on --config config.yaml
//
// # Using as a Go Library
//
// Import the packages directly:
//
//	import (
//	    "github.com/labourlens/labourlens/pkg/config"
//	    "github.com/labourlens/labourlens/pkg/pipeline"
//	    "github.com/labourlens/labourlens/pkg/retrieval"
//	)
//
// Build a pipeline.Pipeline from pipeline.Dependencies and call
// Execute with a pipeline.Request. The returned Result always carries
// a confidence score and an escalation decision, even when individual
// stages fail.
package labourlens
