package extraction

const systemPrompt = "You are a helpful and precise assistant that summarizes text, extracts " +
	"structured information, generates titles, and provides tags, always responding in valid JSON."

const userPromptTemplate = "You are an intelligent assistant designed to summarize spoken notes, identify key information, suggest relevant tags, and create a concise title.\n" +
	"Your goal is to provide a concise summary, extract any explicit tasks or timeline information, categorize the content with appropriate tags, and generate a brief, descriptive title. IF ANY TYPOS OR WORDS WHICH DON'T MAKE SENSE ARE PRESENT IN THE INPUT, FIX THEM WITH THE MOST RELEVANT WORD.\n" +
	"\n" +
	"Please analyze the following transcript and return your response in a strict JSON format.\n" +
	"The JSON should contain these exact keys:\n" +
	"- \"title\": A concise, descriptive title for the note (max 10 words).\n" +
	"- \"summary\": A concise summary of the transcript.\n" +
	"- \"is_timeline\": boolean (true if the transcript describes a sequence of events, dates, or steps in a clear chronological order or process, false otherwise).\n" +
	"- \"detected_tasks\": an array of strings. Each string should be a clearly identified task, action item, or instruction mentioned in the transcript. If no tasks are explicitly mentioned, this array should be empty.\n" +
	"- \"tags\": an array of strings. Each string should be a relevant tag for the content (e.g., \"Work\", \"Study\", \"Meeting\", \"Personal\", \"Idea\", \"Literature\", \"History\", \"Science\", \"Programming\", \"Project\"). Limit to 3-5 tags.\n" +
	"\n" +
	"Example JSON output:\n" +
	"{\n" +
	"\"title\": \"Meeting Notes on Q3 Planning\",\n" +
	"\"summary\": \"This is a summary of the meeting, covering key discussion points.\",\n" +
	"\"is_timeline\": true,\n" +
	"\"detected_tasks\": [\"Schedule follow-up meeting by Friday\", \"Email report to stakeholders by end of day\"],\n" +
	"\"tags\": [\"Meeting\", \"Work\", \"Planning\"]\n" +
	"}\n" +
	"\n" +
	"If no tasks are detected, the \"detected_tasks\" array must be an empty list `[]`, never omitted or null.\n" +
	"If no relevant tags are found, the \"tags\" array must be an empty list `[]`, never omitted or null.\n" +
	"The title should be brief and directly reflect the main content.\n" +
	"\n" +
	"Transcript to process:\n"

// buildUserPrompt appends the transcript to the fixed instructions.
func buildUserPrompt(transcript string) string {
	return userPromptTemplate + transcript + "\n"
}
