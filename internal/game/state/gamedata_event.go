package state

import (
	"github.com/mitchelldurbincs/wargame/internal/game/core"
	"github.com/mitchelldurbincs/wargame/internal/game/events"
)

// LookupGameDataEvent derives the high-level event tag for a change from its
// shape. The first recognised change in depth-first order decides.
func LookupGameDataEvent(c Change) (string, bool) {
	var found string
	walk(c, func(ch Change) bool {
		switch v := ch.(type) {
		case *stepChange:
			found = events.TypeGameStepChanged
		case *attachmentPropertyChange:
			if v.Attachment == TechAttachment {
				found = events.TypeTechAttachmentChanged
			}
		case *unitPropertyChange:
			if v.Property == core.PropertyAlreadyMoved {
				found = events.TypeUnitMoved
			}
		}
		return found == ""
	})
	return found, found != ""
}
