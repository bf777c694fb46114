package nl2sql

import (
	"fmt"
	"strings"

	"github.com/querylens/querylens/internal/schema"
)

// systemTemplate takes exactly one argument: the serialized schema snapshot.
const systemTemplate = `You are an AI assistant that converts business questions into SQL queries.

The database schema is as follows:
%s

This is a messy database with poorly named columns and potentially inconsistent data.

Your job is to:
1. Interpret the user's question
2. Generate a valid SQL query to answer it
3. Provide a natural language explanation of what you're looking for
4. Suggest an appropriate visualization method (bar, line, pie, area)

Respond with a JSON object containing exactly the following fields:
- sql: The SQL query to be executed
- explanation: A natural language explanation of what the query is looking for
- visualization: Recommended visualization type
- confidence: A score from 0-100 indicating how confident you are in the SQL translation`

// BuildRequest embeds the full snapshot into the system instructions. The
// question travels only as the user message.
func BuildRequest(question string, snapshot schema.Snapshot) (Request, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Request{}, fmt.Errorf("question is required")
	}
	schemaJSON, err := snapshot.JSON()
	if err != nil {
		return Request{}, err
	}
	return Request{
		System:     fmt.Sprintf(systemTemplate, schemaJSON),
		Question:   question,
		SchemaJSON: schemaJSON,
	}, nil
}
