// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package summarize

import "fmt"

// MaxPromptBytes is the largest prompt the worker will submit.
const MaxPromptBytes = 32 * 1000 * 1000

// summaryPrompt accompanies every PDF. The tag names must match the keys
// the extract package looks for.
const summaryPrompt = `I'm sharing a research paper with you as a PDF attachment. Please provide a comprehensive summary of this paper.

Please analyze the full PDF and provide:

1. A concise summary (250-300 words) of the paper's main contributions and findings
2. The key methodologies used
3. The key contributions
4. Any notable limitations mentioned

Focus especially on the paper's relevance to interpretability research, mechanistic interpretability, and explainable AI.

Output your response in the following XML tags:
<summary></summary>
<methods></methods>
<contributions></contributions>
<limitations></limitations>

Plan your response outside of the XML tags before writing the final output.
`

// Prompt returns the instruction text sent with each document.
func Prompt() string {
	return summaryPrompt
}

// SizeError reports a prompt over the worker's limit. It is never retried.
type SizeError struct {
	Size  int
	Limit int
}

func (e *SizeError) Error() string {
	return fmt.Sprintf("prompt is %d bytes, limit is %d", e.Size, e.Limit)
}

// checkSize returns a *SizeError when prompt is over the limit.
func checkSize(prompt string, limit int) error {
	if len(prompt) > limit {
		return &SizeError{Size: len(prompt), Limit: limit}
	}
	return nil
}
