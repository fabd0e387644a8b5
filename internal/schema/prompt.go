package schema

import "fmt"

const promptTemplate = `Analyze the following transcript of a brainstorming session about building an application or website and organize the ideas into a structured schema.

TRANSCRIPT:
%q

Reply with a single JSON object using exactly this structure:
{
  "projectTitle": "Suggested project title",
  "description": "Clear and concise project description",
  "sections": [
    {"title": "Core Features", "content": ["feature 1", "feature 2"], "priority": "high"},
    {"title": "UI/UX", "content": ["trait 1", "trait 2"], "priority": "medium"},
    {"title": "Integrations and APIs", "content": ["integration 1", "integration 2"], "priority": "medium"}
  ],
  "techStack": ["technology 1", "technology 2"],
  "finalPrompt": "An optimized, detailed prompt that can be given directly to another AI to build the application, covering every technical specification, feature, design choice and requirement identified."
}

Make sure to:
1. Identify every feature mentioned
2. Organize the ideas by priority ("high", "medium" or "low") and category
3. Suggest appropriate technologies
4. Write a complete and detailed final prompt for development
5. Write the values in the language of the transcript`

// Prompt embeds the transcript in the fixed instruction template.
func Prompt(transcript string) string {
	return fmt.Sprintf(promptTemplate, transcript)
}
