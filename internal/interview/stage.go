package interview

// Stage is one phase of the interview. The catalog is fixed and shared by every session.
type Stage struct {
	Name             string
	Purpose          string
	QuestionStyle    string
	FallbackQuestion string
}

const StageCount = 6

var stages = [StageCount]Stage{
	{
		Name:             "introduction",
		Purpose:          "Build rapport and understand motivation",
		QuestionStyle:    "Open-ended, welcoming questions about background and interest",
		FallbackQuestion: "What interests you most about this role and our company?",
	},
	{
		Name:             "experience_deep_dive",
		Purpose:          "Explore relevant past experience with specific examples",
		QuestionStyle:    "STAR method questions focusing on specific situations and outcomes",
		FallbackQuestion: "Can you walk me through a challenging project you've worked on recently?",
	},
	{
		Name:             "technical_assessment",
		Purpose:          "Evaluate technical competency and problem-solving approach",
		QuestionStyle:    "Scenario-based questions requiring detailed technical explanations",
		FallbackQuestion: "How would you approach solving a complex technical problem in this domain?",
	},
	{
		Name:             "role_specific_fit",
		Purpose:          "Assess fit for specific job requirements and challenges",
		QuestionStyle:    "Job-specific scenarios and hypothetical situations",
		FallbackQuestion: "What do you see as the biggest challenges in this role, and how would you address them?",
	},
	{
		Name:             "behavioral_insights",
		Purpose:          "Understand work style, collaboration, and growth mindset",
		QuestionStyle:    "Behavioral questions using past examples to predict future performance",
		FallbackQuestion: "Tell me about a time when you had to collaborate with a difficult team member.",
	},
	{
		Name:             "closing_exploration",
		Purpose:          "Address questions and assess genuine interest",
		QuestionStyle:    "Open dialogue about expectations and mutual fit",
		FallbackQuestion: "What questions do you have about the role or our team?",
	},
}

// Stages returns a copy of the catalog in interview order.
func Stages() []Stage {
	out := make([]Stage, StageCount)
	copy(out, stages[:])
	return out
}

// StageAt returns the stage at index i, clamped to the catalog bounds.
func StageAt(i int) Stage {
	if i < 0 {
		i = 0
	}
	if i >= StageCount {
		i = StageCount - 1
	}
	return stages[i]
}

// StageIndexFor derives the stage index from the number of main questions asked so far.
func StageIndexFor(questionCount, maxQuestions int) int {
	perStage := maxQuestions / StageCount
	if perStage < 1 {
		perStage = 1
	}
	if questionCount <= 1 {
		return 0
	}
	idx := (questionCount - 1) / perStage
	if idx > StageCount-1 {
		idx = StageCount - 1
	}
	return idx
}
