package ai

const advisorSystemPrompt = `You are a friendly personal finance assistant.
Amounts are signed: positive values are income, negative values are expenses.
Answer concisely in plain text without Markdown headings.`

const categorizePrompt = `Classify the transaction into exactly one of these categories: %s.
Reply with the category name only.

Description: %s
Amount: %s`

const insightsPrompt = `Here is a JSON summary of my finances:
%s

Give me 3 to 5 short, specific insights as a numbered list, one per line.`

const chatPrompt = `My financial data as JSON:
%s

Question: %s`
