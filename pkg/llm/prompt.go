package llm

import (
	"fmt"
	"strings"
)

const summarySystemPrompt = "You are a legislative analyst providing clear, accurate summaries of bills " +
	"to help citizens understand legislation. Focus on the key points and practical impacts. " +
	"Be concise but informative."

const chatSystemPrompt = "You are a helpful legislative assistant. You are analyzing the following bill:\n\n%s\n\n" +
	"Answer questions using the bill information above. When the information does not cover a " +
	"question, say so plainly instead of guessing."

const contentSystemPrompt = "You are a legislative assistant. Summarize the following bill text concisely, " +
	"highlighting key provisions, potential impacts, and stakeholders affected. Format your response in markdown."

const keywordSystemPrompt = "You are an expert legislative analyst who extracts relevant keywords from bills."

func keywordPrompt(req KeywordRequest) string {
	return fmt.Sprintf("Extract 5-10 relevant keywords or key phrases from the following bill. "+
		"They should help categorize the bill and make it discoverable in searches.\n\n"+
		"Bill Title: %s\n\nBill Text:\n%s\n\n"+
		"Reply with ONLY the keywords separated by commas.", req.Title, strings.TrimSpace(req.Text))
}

// ParseKeywords splits a comma-separated model reply into trimmed keywords.
// Empty items and case-insensitive repeats are dropped.
func ParseKeywords(reply string) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, part := range strings.Split(reply, ",") {
		kw := strings.Trim(strings.TrimSpace(part), `."'`)
		if kw == "" {
			continue
		}
		folded := strings.ToLower(kw)
		if _, dup := seen[folded]; dup {
			continue
		}
		seen[folded] = struct{}{}
		out = append(out, kw)
	}
	return out
}

func summaryPrompt(req SummaryRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate a brief summary of %s: %s", req.Identifier, req.Title)
	if text := strings.TrimSpace(req.Text); text != "" {
		fmt.Fprintf(&b, "\n\nBill text:\n%s", text)
	} else if abstract := strings.TrimSpace(req.Abstract); abstract != "" {
		fmt.Fprintf(&b, "\n\nAbstract:\n%s", abstract)
	}
	return b.String()
}

func chatSystem(context string) string {
	return fmt.Sprintf(chatSystemPrompt, context)
}
