package prompts

type PromptName string

const (
	PromptRhetoricPass PromptName = "rhetoric_pass"
	PromptPersonaPass  PromptName = "persona_pass"
	PromptCriticReview PromptName = "critic_review"
	PromptRefereeMerge PromptName = "referee_merge"
	PromptClaimScan    PromptName = "claim_scan"
)
