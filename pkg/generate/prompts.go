package generate

const kbSystemPrompt = `You are a knowledge base expert. Create comprehensive KB articles by synthesizing information from multiple sources.
Your goal is to create clear, actionable documentation that helps users solve their issues.`

const scriptSystemPrompt = `You are a database script and documentation expert. Create both functional SQL scripts and comprehensive KB documentation.
Your scripts should be production-ready with proper error handling and comments.`

// kbPayload is the structured shape expected from a KB synthesis call.
type kbPayload struct {
	Title    string `json:"title"`
	Body     string `json:"body"`
	Tags     string `json:"tags"`
	Module   string `json:"module"`
	Category string `json:"category"`
}

// scriptPayload is the structured shape of the script half of a synthesis.
type scriptPayload struct {
	Title    string `json:"title"`
	Purpose  string `json:"purpose"`
	Inputs   string `json:"inputs"`
	Module   string `json:"module"`
	Category string `json:"category"`
	Code     string `json:"code"`
}

// scriptAndKBPayload is the two-part shape expected from the script route:
// one new script plus the KB article documenting its usage.
type scriptAndKBPayload struct {
	Script    scriptPayload `json:"script"`
	KBArticle kbPayload     `json:"kb_article"`
}

// fallbackKBPayload is the fixed artifact persisted when KB synthesis output
// cannot be parsed even after repair.
func fallbackKBPayload() kbPayload {
	return kbPayload{
		Title:    "Support Resolution Article",
		Body:     "Article generation failed. Please review the original ticket.",
		Tags:     "auto-generated",
		Module:   "General",
		Category: "Support",
	}
}

// fallbackScriptAndKBPayload is the fixed pair persisted when script
// synthesis output cannot be parsed even after repair.
func fallbackScriptAndKBPayload() scriptAndKBPayload {
	return scriptAndKBPayload{
		Script: scriptPayload{
			Title:    "Auto-generated Script",
			Purpose:  "Generated from support ticket",
			Inputs:   "See script comments",
			Module:   "General",
			Category: "Support",
			Code:     "-- Script generation failed, manual review needed",
		},
		KBArticle: fallbackKBPayload(),
	}
}
