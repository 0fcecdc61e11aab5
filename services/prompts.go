package services

// rephrasePrompt turns a follow-up into a standalone query. The rewritten
// question is used for retrieval only; the transcript and the final prompt
// keep the user's original wording.
const rephrasePrompt = `Given the conversation below, rewrite the final user question as a single standalone question that can be understood without the conversation. Resolve pronouns and references, including references to the uploaded files. Do not answer the question. Output only the rewritten question.

Uploaded files: %s

Conversation:
%s

Final user question: %s

Standalone question:`

// answerPrompt is the qa template. The persona section comes first so the
// configured instructions frame everything that follows.
const answerPrompt = `%s

You answer questions using only the context provided below. The context contains passages from the user's uploaded documents and, where relevant, memories from earlier in this conversation.

Rules:
- If the context does not contain the answer, say you don't know. Do not invent facts.
- When you use information from a document passage, cite it inline as (Source: [original_filename], Page: [page_number]) using the FILE and PAGE values of that passage.
- Uploaded files in this chat: %s

Context:
%s

Conversation so far:
%s

Question: %s

Answer:`

const defaultPersonaInstructions = "You are a helpful assistant that answers questions about the user's documents."
