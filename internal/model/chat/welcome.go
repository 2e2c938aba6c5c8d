package chat

var welcomeMessages = map[Language]string{
	English: "Hi there! I'm EduBridge, your friendly AI tutor! 🌟 Ask me anything about math, science, or language. I'm here to help you learn!",
	Hindi:   "नमस्ते! मैं EduBridge हूँ, आपका दोस्ताना AI शिक्षक! 🌟 गणित, विज्ञान या भाषा के बारे में कुछ भी पूछें। मैं आपकी मदद करने के लिए यहाँ हूँ!",
	Tamil:   "வணக்கம்! நான் EduBridge, உங்கள் நட்புரீதியான AI ஆசிரியர்! 🌟 கணிதம், அறிவியல் அல்லது மொழி பற்றி எதையும் கேளுங்கள். நான் உங்களுக்கு கற்றுக் கொடுக்க இங்கே இருக்கிறேன்!",
	Telugu:  "నమస్కారం! నేను EduBridge, మీ స్నేహపూర్వక AI ఉపాధ్యాయుడు! 🌟 గణితం, సైన్స్ లేదా భాష గురించి ఏదైనా అడగండి. నేను మీకు నేర్పడానికి ఇక్కడ ఉన్నాను!",
}

// WelcomeText returns the greeting that opens every session.
func WelcomeText(l Language) string {
	if text, ok := welcomeMessages[l]; ok {
		return text
	}
	return welcomeMessages[English]
}
