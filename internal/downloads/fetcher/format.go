package fetcher

import (
	"github.com/mediagrab/cloud-media-fetcher/internal/models"
)

const (
	audioSelector    = "bestaudio[ext=m4a]/bestaudio/best"
	video4KSelector  = "bestvideo[height>=2160]+bestaudio/best[ext=mp4]/best"
	videoFHDSelector = "bestvideo[height>=1080]+bestaudio/best[ext=mp4]/best"
	videoHDSelector  = "bestvideo[height>=720]+bestaudio/best[ext=mp4]/best"
)

// ResolveFormat maps a media type and quality tier to a tool format
// selection. It is total: any unrecognized tier gets the default
// video selection, so admission never has to pre-screen tiers.
func ResolveFormat(mediaType models.MediaType, quality string) models.FormatSpec {
	if mediaType == models.MediaTypeAudio {
		return models.FormatSpec{
			Selector:    audioSelector,
			Ext:         ".m4a",
			ContentType: "audio/mp4",
		}
	}
	spec := models.FormatSpec{
		MergeFormat: "mp4",
		Ext:         ".mp4",
		ContentType: "video/mp4",
	}
	switch quality {
	case "4K":
		spec.Selector = video4KSelector
	case "1080p":
		spec.Selector = videoFHDSelector
	default:
		spec.Selector = videoHDSelector
	}
	return spec
}
