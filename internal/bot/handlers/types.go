package handlers

import (
	"github.com/vladimiradmaev/eyecare-tracker/internal/interfaces"
)

// historyLimit is how many rows a history view shows
const historyLimit = 10

// Dependencies holds all service dependencies for handlers
type Dependencies struct {
	Auth      interfaces.AuthServiceInterface
	Glaucoma  interfaces.GlaucomaServiceInterface
	Retina    interfaces.RetinaServiceInterface
	Reminders interfaces.ReminderSchedulerInterface
}
