package model

import "time"

// FacebookContent holds the Facebook page and group fields of a package.
type FacebookContent struct {
	PostBody              string   `json:"post_body"`
	PinnedComment         string   `json:"pinned_comment"`
	Headlines             []string `json:"headlines"`
	CTA                   string   `json:"cta"`
	GroupPostBody         string   `json:"group_post_body"`
	GroupDiscussionPrompt string   `json:"group_discussion_prompt"`
}

// InstagramContent holds the Instagram reel fields of a package.
type InstagramContent struct {
	OnScreenText []string `json:"on_screen_text"`
	Caption      string   `json:"caption"`
	ReelScript   []string `json:"reel_script"`
	Hashtags     []string `json:"hashtags"`
	SeedComment  string   `json:"seed_comment"`
}

// XContent holds the X (Twitter) fields of a package.
type XContent struct {
	PrimaryPost        string   `json:"primary_post"`
	ThreadReplies      []string `json:"thread_replies"`
	EngagementQuestion string   `json:"engagement_question"`
}

// YouTubeContent holds the YouTube Shorts fields of a package.
type YouTubeContent struct {
	Title         string `json:"title"`
	ShortsScript  string `json:"shorts_script"`
	Description   string `json:"description"`
	PinnedComment string `json:"pinned_comment"`
}

// Schedule holds the deployment plan fields of a package.
type Schedule struct {
	RecommendedTimes map[string]string `json:"recommended_post_times"`
	PostingOrder     []string          `json:"platform_posting_order"`
	NextAction       string            `json:"next_action"`
	QueuePosition    int               `json:"today_queue_position"`
}

// Package is the editable multi-platform publishing package for one topic
// cluster. It is loaded from or generated by the data service and mutated
// only through a Document.
type Package struct {
	ClusterID      string    `json:"cluster_id"`
	GeneratedAt    time.Time `json:"generated_at"`
	UsedForContent bool      `json:"used_for_content"`

	// Canonical fields, produced by generation, read-mostly.
	PrimaryTopic   string `json:"primary_topic"`
	SecondaryTopic string `json:"secondary_topic"`
	CoreThesis     string `json:"core_thesis"`
	EditorialAngle string `json:"editorial_angle"`

	Facebook       FacebookContent  `json:"facebook"`
	Instagram      InstagramContent `json:"instagram"`
	X              XContent         `json:"x"`
	YouTube        YouTubeContent   `json:"youtube"`
	CarouselSlides []string         `json:"carousel_slides"`
	Schedule       Schedule         `json:"schedule"`

	// Provenance fields, display only, never validated.
	PostingNotes  string `json:"posting_notes,omitempty"`
	AudioGuidance string `json:"audio_guidance,omitempty"`
}
