package models

// SocialPostPayload is the structured post the achievement generator shapes
// for the social feed. Pushed through the outbox; the feed service owns
// rendering and fan-out.
type SocialPostPayload struct {
	ExternalUserID string          `json:"external_user_id"`
	Username       string          `json:"username"`
	Level          int             `json:"level"`
	Caption        string          `json:"caption"`
	MediaURL       string          `json:"media_url"`
	MediaType      string          `json:"media_type"`
	Permalink      string          `json:"permalink"`
	QuestTag       *QuestTag       `json:"quest_tag,omitempty"`
	AchievementTag *AchievementTag `json:"achievement_tag,omitempty"`
}

type QuestTag struct {
	QuestID    string `json:"quest_id"`
	QuestTitle string `json:"quest_title"`
	QuestType  string `json:"quest_type"`
}

type AchievementTag struct {
	AchievementID    string `json:"achievement_id"`
	AchievementTitle string `json:"achievement_title"`
	AchievementType  string `json:"achievement_type"`
}

// VoiceLinePayload is the text handed to the narrative/voice collaborator.
// Fire-and-forget; no return value is consumed.
type VoiceLinePayload struct {
	ExternalUserID string `json:"external_user_id"`
	Text           string `json:"text"`
	VoiceID        string `json:"voice_id,omitempty"`
}
