package interview

import (
	"fmt"
	"strings"

	"github.com/yoockh/yoointerview/internal/providers/llm"
)

const systemFraming = "You are an experienced, empathetic technical interviewer conducting a conversational interview. " +
	"Your goal is to assess the candidate's technical skills, cultural fit, and potential for growth " +
	"through natural dialogue rather than rigid Q&A.\n\n" +
	"INTERVIEW STYLE:\n" +
	"- Be conversational and human-like, not robotic\n" +
	"- Show genuine interest in their responses\n" +
	"- Ask follow-up questions based on what they share\n" +
	"- Be flexible and adapt to their communication style\n" +
	"- If they ask for clarification, provide it naturally\n" +
	"- Build on their previous answers to create a flowing conversation\n" +
	"- Reference specific details they've mentioned\n\n" +
	"RESPONSE HANDLING:\n" +
	"- If they say they don't understand, rephrase your question clearly\n" +
	"- If they give a brief answer, ask for more details\n" +
	"- If they mention interesting experiences, explore them further\n" +
	"- If they seem nervous, be encouraging and supportive\n" +
	"- If they ask questions, answer them briefly then continue the interview\n\n" +
	"Maintain a warm, professional tone while gathering meaningful insights through natural conversation."

// OpeningGreeting is sent as the first main question without a generation call.
const OpeningGreeting = "Hello! I'm excited to speak with you today about this opportunity. " +
	"I've reviewed your background and I'm particularly interested in your experience. " +
	"Could you start by telling me what drew you to apply for this role and " +
	"what aspects of your background make you most excited about this opportunity?"

const lastAnswerPreview = 200

var fillerOpeners = []string{
	"Great question!", "That's interesting.", "Thank you for sharing.",
	"I see.", "Excellent.", "Perfect.",
}

// MainQuestionInput is everything the main-question prompt depends on.
type MainQuestionInput struct {
	JobDescription string
	ResumeText     string
	QuestionCount  int
	MaxQuestions   int
	Stage          Stage
	History        []Turn
}

func recentContext(history []Turn) string {
	if len(history) == 0 {
		return ""
	}
	last := history[len(history)-1]
	answer := last.Answer
	if len([]rune(answer)) > lastAnswerPreview {
		answer = string([]rune(answer)[:lastAnswerPreview]) + "..."
	}
	return fmt.Sprintf("Last Q&A for context:\nQ: %s\nA: %s", last.Question, answer)
}

// MainQuestionPrompt builds the messages asking for the next main question.
func MainQuestionPrompt(in MainQuestionInput) []llm.Message {
	recent := recentContext(in.History)

	var ctx strings.Builder
	ctx.WriteString("INTERVIEW CONTEXT:\n")
	fmt.Fprintf(&ctx, "Progress: %d/%d questions completed\n", in.QuestionCount, in.MaxQuestions)
	fmt.Fprintf(&ctx, "Current Stage: %s (%s)\n", in.Stage.Name, in.Stage.Purpose)
	fmt.Fprintf(&ctx, "Question Style: %s\n\n", in.Stage.QuestionStyle)
	ctx.WriteString("JOB REQUIREMENTS:\n")
	ctx.WriteString(in.JobDescription)
	ctx.WriteString("\n\nCANDIDATE BACKGROUND:\n")
	ctx.WriteString(in.ResumeText)
	ctx.WriteString("\n\nGUIDELINES:\n")
	ctx.WriteString("- Ask ONE focused question that builds on previous answers\n")
	ctx.WriteString("- Reference specific details from their resume or previous responses\n")
	ctx.WriteString("- Maintain professional but conversational tone\n")
	ctx.WriteString("- For technical questions, ask for specific examples and explanations\n")
	ctx.WriteString("- For behavioral questions, use \"Tell me about a time when...\" format\n")
	ctx.WriteString("- Keep questions concise (2-3 sentences max)\n")
	ctx.WriteString("- Avoid yes/no questions - seek detailed responses\n")
	if recent != "" {
		ctx.WriteString("\n")
		ctx.WriteString(recent)
		ctx.WriteString("\n")
	}

	msgs := []llm.Message{llm.System(systemFraming), llm.System(ctx.String())}
	for i, t := range in.History {
		msgs = append(msgs,
			llm.User(fmt.Sprintf("Previous Question %d: %s", i+1, t.Question)),
			llm.User(fmt.Sprintf("Candidate Response %d: %s", i+1, t.Answer)),
		)
	}

	if recent == "" {
		recent = "Starting this stage"
	}
	var instr strings.Builder
	fmt.Fprintf(&instr, "Based on the %s stage focus and the conversation so far, continue the interview naturally.\n\n", in.Stage.Name)
	instr.WriteString("CONVERSATION CONTEXT:\n")
	fmt.Fprintf(&instr, "- This is question %d of %d main questions\n", in.QuestionCount+1, in.MaxQuestions)
	fmt.Fprintf(&instr, "- Current stage: %s - %s\n", in.Stage.Name, in.Stage.Purpose)
	fmt.Fprintf(&instr, "- Recent conversation: %s\n\n", recent)
	instr.WriteString("TASK: Generate exactly one conversational question that:\n")
	instr.WriteString("1. Builds naturally on what they've shared so far\n")
	instr.WriteString("2. References specific details from their previous responses\n")
	instr.WriteString("3. Maintains the interview flow and stage focus\n")
	instr.WriteString("4. Cannot be answered with yes or no\n")
	instr.WriteString("5. Is no longer than 3 sentences\n\n")
	instr.WriteString("Generate your question:")
	msgs = append(msgs, llm.User(instr.String()))
	return msgs
}

// FollowUpPrompt builds the single system message asking for a probing follow-up.
func FollowUpPrompt(stage Stage, answer string) []llm.Message {
	var b strings.Builder
	fmt.Fprintf(&b, "You are an AI interviewer conducting a %s stage interview.\n\n", stage.Name)
	b.WriteString("CANDIDATE'S LAST RESPONSE:\n")
	b.WriteString(answer)
	fmt.Fprintf(&b, "\n\nCURRENT STAGE: %s - %s\n\n", stage.Name, stage.Purpose)
	b.WriteString("TASK: Generate a natural follow-up question that:\n")
	b.WriteString("1. References something specific from their response\n")
	b.WriteString("2. Digs deeper into an interesting point they mentioned\n")
	b.WriteString("3. Is relevant to the current interview stage\n\n")
	b.WriteString("Guidelines:\n")
	b.WriteString("- Ask for more details, examples, or explanations\n")
	b.WriteString("- Don't ask yes/no questions\n")
	b.WriteString("- Keep it to 1-2 sentences maximum\n\n")
	b.WriteString("Generate the follow-up question:")
	return []llm.Message{llm.System(b.String())}
}

// ScoringPrompt asks for a bare 1-10 rubric score.
func ScoringPrompt(stage Stage, question, answer string) []llm.Message {
	var b strings.Builder
	b.WriteString("You are an expert interviewer evaluating a candidate's response. Score this response from 1-10.\n\n")
	fmt.Fprintf(&b, "QUESTION: %s\nANSWER: %s\n\n", question, answer)
	b.WriteString("EVALUATION CRITERIA:\n")
	fmt.Fprintf(&b, "- Stage: %s (%s)\n", stage.Name, stage.Purpose)
	b.WriteString("- Relevance: How well does the answer address the question?\n")
	b.WriteString("- Depth: Does the answer provide sufficient detail and examples?\n")
	b.WriteString("- Clarity: Is the response well-structured and easy to follow?\n\n")
	b.WriteString("SCORING GUIDE:\n1-3: Poor\n4-6: Average\n7-8: Good\n9-10: Excellent\n\n")
	b.WriteString("IMPORTANT: Respond with ONLY a single number between 1 and 10. Do not include any text, explanation, or punctuation.")
	return []llm.Message{llm.System(b.String())}
}

// StageAverage is the mean score of one stage, kept in first-seen order.
type StageAverage struct {
	Stage   string
	Average float64
}

// FormatStageTable renders per-stage averages as "stage: avg/10, " pairs.
func FormatStageTable(avgs []StageAverage) string {
	var b strings.Builder
	for _, a := range avgs {
		fmt.Fprintf(&b, "%s: %.1f/10, ", a.Stage, a.Average)
	}
	return b.String()
}

func SummaryPrompt(average float64, stageTable string) []llm.Message {
	p := fmt.Sprintf("The candidate completed an interview with an overall average score of %.1f/10.\n\n"+
		"Stage-by-stage performance:\n%s\n\n"+
		"Please provide a comprehensive but concise summary covering:\n"+
		"1. Key strengths demonstrated\n"+
		"2. Areas for improvement\n"+
		"3. Overall assessment for the role\n"+
		"4. Specific recommendations\n\n"+
		"Keep it professional and constructive.", average, stageTable)
	return []llm.Message{llm.System(p)}
}

func RecommendationPrompt(average float64) []llm.Message {
	p := fmt.Sprintf("Based on the candidate's overall average score of %.1f/10 and the stage-by-stage "+
		"summary provided, would you recommend advancing this candidate to the next stage?\n"+
		"Respond with EXACTLY one word: \"Yes\" or \"No\", and then in 1-2 sentences justify your choice.", average)
	return []llm.Message{llm.System(p)}
}

// Refine strips filler openers from generated text and makes sure it ends with punctuation.
func Refine(text string) string {
	out := strings.TrimSpace(text)
	for _, prefix := range fillerOpeners {
		if strings.HasPrefix(out, prefix) {
			out = strings.TrimSpace(out[len(prefix):])
		}
	}
	if !strings.HasSuffix(out, "?") && !strings.HasSuffix(out, ".") && !strings.HasSuffix(out, "!") {
		out += "?"
	}
	return out
}
