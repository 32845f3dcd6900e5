package detector

import "fmt"

func detectionSystemPrompt() string {
	return "You watch a live conversation transcript for moments worth remarking on. " +
		"Given the recent turn, the text not yet commented on, and broader context, " +
		"identify discrete events (emotion peaks, topic changes, questions raised, " +
		"conclusions, key points, summary points). Respond with strict JSON only: " +
		`{"events":[{"type":string,"confidence":number,"intensity":number,` +
		`"triggers":[string],"reasoning":string,"content_quality_score":number}],` +
		`"context_language":string}. Omit events you are not confident about.`
}

func buildPromptText(p Prompt) string {
	return fmt.Sprintf(
		"Triggering turn:\n%s\n\nNot yet commented on:\n%s\n\nBroader context:\n%s\n",
		p.Content, p.ImmediateContext, p.BroadContext,
	)
}
