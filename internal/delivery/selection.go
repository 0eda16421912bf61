package delivery

import (
	"strings"
	"time"

	"github.com/clipforge/backend/internal/models"
)

// videoAsset reports whether the remote host classifies the asset as video.
func videoAsset(asset models.RemoteAsset) bool {
	return strings.HasPrefix(asset.MediaType, "video")
}

// Qualifies reports whether an asset counts as a new deliverable for the
// given cutoff: it must be a video whose latest activity (created or updated)
// is strictly after the cutoff. Activity at exactly the cutoff does not
// qualify.
func Qualifies(asset models.RemoteAsset, cutoff time.Time) bool {
	return videoAsset(asset) && asset.LatestActivity().After(cutoff)
}

// SelectDeliverable picks the single asset treated as the deliverable for a
// cycle: the qualifying video with the latest activity timestamp. Equal
// timestamps are broken by the larger remote ID so the choice is
// deterministic. ok is false when nothing qualifies.
func SelectDeliverable(assets []models.RemoteAsset, cutoff time.Time) (models.RemoteAsset, bool) {
	var (
		best  models.RemoteAsset
		found bool
	)

	for _, asset := range assets {
		if !Qualifies(asset, cutoff) {
			continue
		}
		if !found || newer(asset, best) {
			best = asset
			found = true
		}
	}

	return best, found
}

func newer(a, b models.RemoteAsset) bool {
	at, bt := a.LatestActivity(), b.LatestActivity()
	if !at.Equal(bt) {
		return at.After(bt)
	}
	return a.RemoteID > b.RemoteID
}
