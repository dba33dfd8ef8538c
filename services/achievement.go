// services/achievement.go
package services

import (
	"fmt"
	"math/rand"

	"mythic-quest-system/models"

	"github.com/gosimple/slug"
)

// AchievementService shapes congratulatory text and social-post payloads
// from reward events. Stateless mapping Event -> {text, image, tags};
// randomness is for variety only.
type AchievementService struct{}

func NewAchievementService() *AchievementService {
	return &AchievementService{}
}

var levelUpMessages = []string{
	"🎉 Just reached Level %d! The mystical energies of Eldoria grow stronger with my dedication to wellness! ✨",
	"⚡ Level %d achieved! Another milestone on my legendary wellness journey through the realms of Eldoria! 🏆",
	"🌟 Ascended to Level %d! My commitment to health and wellness has unlocked new powers in the mystical realm! 💪",
	"🔥 Level %d unlocked! The ancient spirits of wellness have blessed my journey with incredible growth! 🙏",
	"✨ Reached Level %d! Every quest completed, every challenge overcome brings me closer to wellness mastery! 🎯",
}

var levelUpImages = []string{
	"https://images.pexels.com/photos/2437291/pexels-photo-2437291.jpeg?auto=compress&cs=tinysrgb&w=800",
	"https://images.pexels.com/photos/4101555/pexels-photo-4101555.jpeg?auto=compress&cs=tinysrgb&w=800",
	"https://images.pexels.com/photos/3822622/pexels-photo-3822622.jpeg?auto=compress&cs=tinysrgb&w=800",
	"https://images.pexels.com/photos/1898555/pexels-photo-1898555.jpeg?auto=compress&cs=tinysrgb&w=800",
	"https://images.pexels.com/photos/6945775/pexels-photo-6945775.jpeg?auto=compress&cs=tinysrgb&w=800",
}

var questMessages = map[models.QuestType][]string{
	models.QuestTypeWalking: {
		"🚶‍♀️ Just completed \"%s\"! Every step brings me closer to wellness mastery! 👟✨",
		"🌟 Conquered the walking quest \"%s\"! The paths of Eldoria have strengthened my resolve! 🏃‍♀️",
		"⚡ Finished \"%s\" - my feet have carried me to new heights of wellness! 🦶💪",
	},
	models.QuestTypeExercise: {
		"💪 Crushed the exercise quest \"%s\"! My body grows stronger with each challenge! 🏋️‍♀️",
		"🔥 Completed \"%s\" - forging my warrior spirit through physical trials! ⚔️",
		"🏆 Conquered \"%s\"! The Iron Temple has blessed my dedication! 💯",
	},
	models.QuestTypeMeditation: {
		"🧘‍♀️ Found inner peace through \"%s\"! The mystical energies flow through me! ✨",
		"🌸 Completed \"%s\" - my mind is clearer, my spirit stronger! 🙏",
		"⭐ Finished \"%s\" - the ancient wisdom guides my wellness journey! 🕯️",
	},
	models.QuestTypeJournaling: {
		"📝 Completed \"%s\"! My thoughts are now chronicles in the mystical realm! 📚",
		"✍️ Finished \"%s\" - wisdom flows from pen to parchment! 📜",
	},
	models.QuestTypeReading: {
		"📚 Completed \"%s\"! Knowledge is the greatest treasure in any realm! 🧠",
		"📖 Finished \"%s\" - wisdom gained, mind expanded! 🌟",
	},
}

var defaultQuestMessages = []string{
	"🎯 Completed \"%s\"! Another victory on my wellness journey! 🏆",
}

var questImages = map[models.QuestType]string{
	models.QuestTypeWalking:    "https://images.pexels.com/photos/2437291/pexels-photo-2437291.jpeg?auto=compress&cs=tinysrgb&w=800",
	models.QuestTypeExercise:   "https://images.pexels.com/photos/4162449/pexels-photo-4162449.jpeg?auto=compress&cs=tinysrgb&w=800",
	models.QuestTypeMeditation: "https://images.pexels.com/photos/3822622/pexels-photo-3822622.jpeg?auto=compress&cs=tinysrgb&w=800",
	models.QuestTypeJournaling: "https://images.pexels.com/photos/4041389/pexels-photo-4041389.jpeg?auto=compress&cs=tinysrgb&w=800",
	models.QuestTypeReading:    "https://images.pexels.com/photos/4041388/pexels-photo-4041388.jpeg?auto=compress&cs=tinysrgb&w=800",
}

const defaultQuestImage = "https://images.pexels.com/photos/4101555/pexels-photo-4101555.jpeg?auto=compress&cs=tinysrgb&w=800"

// LevelUpPost shapes the social-feed payload for a level-up event.
func (a *AchievementService) LevelUpPost(externalUserID, username string, newLevel int, xpEarned, coinsEarned int64) models.SocialPostPayload {
	message := levelUpMessages[rand.Intn(len(levelUpMessages))]
	caption := fmt.Sprintf(message, newLevel)
	caption += fmt.Sprintf("\n\n🏆 Rewards Earned:\n⚡ +%d XP\n💰 +%d Mythic Coins\n\n#WellnessJourney #LevelUp #MythicQuest #HealthGoals",
		xpEarned, coinsEarned)

	return models.SocialPostPayload{
		ExternalUserID: externalUserID,
		Username:       username,
		Level:          newLevel,
		Caption:        caption,
		MediaURL:       levelUpImages[rand.Intn(len(levelUpImages))],
		MediaType:      "image",
		Permalink:      slug.Make(fmt.Sprintf("%s level %d achieved", username, newLevel)),
		AchievementTag: &models.AchievementTag{
			AchievementID:    fmt.Sprintf("level-%d", newLevel),
			AchievementTitle: fmt.Sprintf("Level %d Achieved", newLevel),
			AchievementType:  "level_up",
		},
	}
}

// QuestCompletionPost shapes the shareable payload for a completed quest.
// Unknown quest types fall back to a generic template and image.
func (a *AchievementService) QuestCompletionPost(externalUserID, username string, level int, questID, questTitle string, questType models.QuestType, xpEarned, coinsEarned int64) models.SocialPostPayload {
	pool, ok := questMessages[questType]
	if !ok {
		pool = defaultQuestMessages
	}
	caption := fmt.Sprintf(pool[rand.Intn(len(pool))], questTitle)
	caption += fmt.Sprintf("\n\n🏆 Quest Rewards:\n⚡ +%d XP\n💰 +%d Mythic Coins\n\n#QuestComplete #WellnessJourney #MythicQuest #HealthGoals",
		xpEarned, coinsEarned)

	image, ok := questImages[questType]
	if !ok {
		image = defaultQuestImage
	}

	return models.SocialPostPayload{
		ExternalUserID: externalUserID,
		Username:       username,
		Level:          level,
		Caption:        caption,
		MediaURL:       image,
		MediaType:      "image",
		Permalink:      slug.Make(fmt.Sprintf("%s %s", username, questTitle)),
		QuestTag: &models.QuestTag{
			QuestID:    questID,
			QuestTitle: questTitle,
			QuestType:  string(questType),
		},
	}
}

// MilestonePost shapes the payload for threshold achievements.
func (a *AchievementService) MilestonePost(externalUserID, username string, level int, milestone models.Milestone) models.SocialPostPayload {
	caption := fmt.Sprintf("🏆 Milestone unlocked: %s — %s!\n\n#Milestone #WellnessJourney #MythicQuest #Achievement",
		milestone.Name, milestone.Description)

	return models.SocialPostPayload{
		ExternalUserID: externalUserID,
		Username:       username,
		Level:          level,
		Caption:        caption,
		MediaURL:       defaultQuestImage,
		MediaType:      "image",
		Permalink:      slug.Make(fmt.Sprintf("%s %s", username, milestone.Name)),
		AchievementTag: &models.AchievementTag{
			AchievementID:    milestone.Code,
			AchievementTitle: milestone.Name,
			AchievementType:  "milestone",
		},
	}
}

// LevelUpVoiceLine is the spoken congratulation queued for the narrator.
func (a *AchievementService) LevelUpVoiceLine(newLevel int, questType models.QuestType) string {
	if questType == models.QuestTypeLocation {
		return fmt.Sprintf("Congratulations! You've discovered a magical location and reached level %d! Your wellness journey grows ever stronger.", newLevel)
	}
	return fmt.Sprintf("Congratulations! You've reached level %d in your journey. The realms of Eldoria grow stronger with your dedication.", newLevel)
}
