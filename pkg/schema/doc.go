// Package schema describes tool parameters as OpenAPI object schemas.
//
// A Parameters value is built fluently and serves three consumers: the
// validator (Missing and Validate), the planner prompt (Describe), and
// the MCP surface (Fields).
//
//	params := schema.NewParameters().
//	    String("invoice_number", "invoice to verify", true).
//	    Number("amount", "claimed amount in CNY", true).
//	    Boolean("expedite", "skip the review queue", false)
package schema
