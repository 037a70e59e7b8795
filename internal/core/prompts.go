package core

// prompts.go collects every user-facing reply string in one place so the bot
// copy can be tweaked without touching the rest of the code.

const (
	// MsgProfileCreated is sent when /start registers a new user.
	MsgProfileCreated = "Profile created! You can now send health data as text, photos or PDFs, and I will track it for you."

	// MsgWelcomeBack is sent when /start is issued by an already registered user.
	MsgWelcomeBack = "Welcome back! Send me new health data whenever you like, or run /checkin for a wellbeing check-in."

	// MsgPleaseRegister is sent when an unregistered user submits content.
	MsgPleaseRegister = "I don't know you yet. Please start with the /start command."

	// MsgFirstSubmission is the fixed narrative for a user's first stored
	// submission. No comparison is possible yet, so no inference call is made.
	MsgFirstSubmission = "This is your first stored submission. I saved it — send updated data later and I will compare the two."

	// MsgAnalysisUnavailable is sent when the inference service fails. The
	// submitted content has already been stored at that point.
	MsgAnalysisUnavailable = "I saved your data, but the comparison service is unavailable right now. Please try again later."

	// MsgExtractionFailed is sent when text could not be recovered from an
	// attachment. Nothing is stored in that case.
	MsgExtractionFailed = "I couldn't read any text from that file, so nothing was saved. Please try a clearer copy or send the values as text."

	// MsgUnsupportedMedia is sent for attachment types the bot cannot handle.
	MsgUnsupportedMedia = "I can only read photos, PDF documents and plain text files."

	// MsgCheckinCancelled acknowledges /cancel. Cancelling is idempotent, so
	// the same reply is used whether or not a check-in was in progress.
	MsgCheckinCancelled = "Check-in cancelled. Your previous records are untouched."

	// MsgScoreUnavailable is the safe fallback when the score band table is
	// misconfigured. The configuration error itself is only logged.
	MsgScoreUnavailable = "Your check-in is complete, but I couldn't compute a score this time. Your answers were saved."

	// MsgInternalError is the generic reply for unexpected per-request failures.
	MsgInternalError = "Something went wrong while processing your message. Please try again."

	// MsgUnknownCommand lists the supported commands.
	MsgUnknownCommand = "I don't know that command. Available: /start, /checkin, /cancel, /profile."

	// MsgProfileUsage explains the /profile argument format.
	MsgProfileUsage = "Usage: /profile age=34 gender=f height=172 weight=64.5 (any subset of fields)."

	// MsgProfileUpdated acknowledges a successful profile update.
	MsgProfileUpdated = "Profile updated."
)

// promptInvalidAnswer re-prompts the current question after invalid input.
// The session does not advance, so the user can retry as often as needed.
func promptInvalidAnswer(prompt string) string {
	return "Please answer with a whole number from 0 to 4.\n\n" + prompt
}
