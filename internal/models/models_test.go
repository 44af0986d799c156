package models

import (
	"testing"
	"time"
)

func TestRatingString(t *testing.T) {
	cases := map[Rating]string{
		RatingNone:       "unrated",
		RatingThumbsUp:   "thumbs_up",
		RatingThumbsDown: "thumbs_down",
	}
	for rating, want := range cases {
		if got := rating.String(); got != want {
			t.Errorf("expected %q, got %q", want, got)
		}
	}
}

func TestCredentialsEmpty(t *testing.T) {
	if !(Credentials{}).Empty() {
		t.Error("zero credentials should be empty")
	}
	if (Credentials{Username: "u", Password: "p"}).Empty() {
		t.Error("filled credentials should not be empty")
	}
	if !(Credentials{Username: "u"}).Empty() {
		t.Error("credentials without a password should count as empty")
	}
}

func TestTrackTiredAt(t *testing.T) {
	now := time.Now()

	track := Track{Token: "trk-1"}
	if track.TiredAt(now) {
		t.Error("track without a cooldown should not be tired")
	}

	track.TiredUntil = now.Add(time.Hour)
	if !track.TiredAt(now) {
		t.Error("track inside its cooldown should be tired")
	}
	if track.TiredAt(now.Add(2 * time.Hour)) {
		t.Error("track past its cooldown should not be tired")
	}
}
