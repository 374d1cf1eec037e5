package model

import (
	"fmt"
	"sync"
)

// Field identifies one editable package field. The set is closed: editors
// bind to these constants, so there is no string-path lookup to miss.
type Field int

const (
	FieldFacebookPostBody Field = iota
	FieldFacebookPinnedComment
	FieldFacebookHeadline // indexed
	FieldFacebookCTA
	FieldFacebookGroupPostBody
	FieldFacebookGroupPrompt
	FieldInstagramBeat // indexed
	FieldInstagramCaption
	FieldInstagramReelLine // indexed
	FieldInstagramHashtag  // indexed
	FieldInstagramSeedComment
	FieldXPrimaryPost
	FieldXThreadReply // indexed
	FieldXEngagementQuestion
	FieldYouTubeTitle
	FieldYouTubeShortsScript
	FieldYouTubeDescription
	FieldYouTubePinnedComment
	FieldCarouselSlide // indexed
)

var fieldNames = map[Field]string{
	FieldFacebookPostBody:      "facebook.post_body",
	FieldFacebookPinnedComment: "facebook.pinned_comment",
	FieldFacebookHeadline:      "facebook.headline",
	FieldFacebookCTA:           "facebook.cta",
	FieldFacebookGroupPostBody: "facebook.group_post_body",
	FieldFacebookGroupPrompt:   "facebook.group_discussion_prompt",
	FieldInstagramBeat:         "instagram.on_screen_text",
	FieldInstagramCaption:      "instagram.caption",
	FieldInstagramReelLine:     "instagram.reel_script",
	FieldInstagramHashtag:      "instagram.hashtag",
	FieldInstagramSeedComment:  "instagram.seed_comment",
	FieldXPrimaryPost:          "x.primary_post",
	FieldXThreadReply:          "x.thread_reply",
	FieldXEngagementQuestion:   "x.engagement_question",
	FieldYouTubeTitle:          "youtube.title",
	FieldYouTubeShortsScript:   "youtube.shorts_script",
	FieldYouTubeDescription:    "youtube.description",
	FieldYouTubePinnedComment:  "youtube.pinned_comment",
	FieldCarouselSlide:         "carousel.slide",
}

func (f Field) String() string {
	if name, ok := fieldNames[f]; ok {
		return name
	}
	return fmt.Sprintf("field(%d)", int(f))
}

// FieldByName resolves a wire name back to its Field constant.
func FieldByName(name string) (Field, bool) {
	for f, n := range fieldNames {
		if n == name {
			return f, true
		}
	}
	return 0, false
}

// FieldRef addresses a scalar field, or one entry of a list field.
type FieldRef struct {
	Field Field
	Index int
}

// Document wraps the single live Package checked out by the operator. All
// mutation goes through Set or the Replace methods; subscribers are notified
// after every mutation so derived state is recomputed fresh, never patched.
type Document struct {
	mu   sync.Mutex
	pkg  Package
	subs []func()
}

// NewDocument checks out a package for editing.
func NewDocument(pkg Package) *Document {
	return &Document{pkg: pkg}
}

// ClusterID returns the cluster key the package is bound to.
func (d *Document) ClusterID() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pkg.ClusterID
}

// Package returns a snapshot copy of the current package state.
func (d *Document) Package() Package {
	d.mu.Lock()
	defer d.mu.Unlock()
	return clonePackage(d.pkg)
}

// Subscribe registers a change listener. Listeners run synchronously, in
// registration order, after each mutation.
func (d *Document) Subscribe(fn func()) {
	d.mu.Lock()
	d.subs = append(d.subs, fn)
	d.mu.Unlock()
}

// Set writes a new value at ref and notifies subscribers. Writing to a list
// field at index == len appends; anything further out of range is an error.
func (d *Document) Set(ref FieldRef, value string) error {
	d.mu.Lock()
	err := d.apply(ref, value)
	subs := d.subs
	d.mu.Unlock()
	if err != nil {
		return err
	}
	for _, fn := range subs {
		fn()
	}
	return nil
}

func (d *Document) apply(ref FieldRef, value string) error {
	switch ref.Field {
	case FieldFacebookPostBody:
		d.pkg.Facebook.PostBody = value
	case FieldFacebookPinnedComment:
		d.pkg.Facebook.PinnedComment = value
	case FieldFacebookHeadline:
		return setEntry(&d.pkg.Facebook.Headlines, ref, value)
	case FieldFacebookCTA:
		d.pkg.Facebook.CTA = value
	case FieldFacebookGroupPostBody:
		d.pkg.Facebook.GroupPostBody = value
	case FieldFacebookGroupPrompt:
		d.pkg.Facebook.GroupDiscussionPrompt = value
	case FieldInstagramBeat:
		return setEntry(&d.pkg.Instagram.OnScreenText, ref, value)
	case FieldInstagramCaption:
		d.pkg.Instagram.Caption = value
	case FieldInstagramReelLine:
		return setEntry(&d.pkg.Instagram.ReelScript, ref, value)
	case FieldInstagramHashtag:
		return setEntry(&d.pkg.Instagram.Hashtags, ref, value)
	case FieldInstagramSeedComment:
		d.pkg.Instagram.SeedComment = value
	case FieldXPrimaryPost:
		d.pkg.X.PrimaryPost = value
	case FieldXThreadReply:
		return setEntry(&d.pkg.X.ThreadReplies, ref, value)
	case FieldXEngagementQuestion:
		d.pkg.X.EngagementQuestion = value
	case FieldYouTubeTitle:
		d.pkg.YouTube.Title = value
	case FieldYouTubeShortsScript:
		d.pkg.YouTube.ShortsScript = value
	case FieldYouTubeDescription:
		d.pkg.YouTube.Description = value
	case FieldYouTubePinnedComment:
		d.pkg.YouTube.PinnedComment = value
	case FieldCarouselSlide:
		return setEntry(&d.pkg.CarouselSlides, ref, value)
	default:
		return fmt.Errorf("unknown field %v", ref.Field)
	}
	return nil
}

func setEntry(list *[]string, ref FieldRef, value string) error {
	switch {
	case ref.Index < 0 || ref.Index > len(*list):
		return fmt.Errorf("%s[%d]: index out of range", ref.Field, ref.Index)
	case ref.Index == len(*list):
		*list = append(*list, value)
	default:
		(*list)[ref.Index] = value
	}
	return nil
}

// ReplaceFacebook swaps in freshly generated Facebook content.
func (d *Document) ReplaceFacebook(c FacebookContent) {
	d.replace(func() { d.pkg.Facebook = c })
}

// ReplaceInstagram swaps in freshly generated Instagram content.
func (d *Document) ReplaceInstagram(c InstagramContent) {
	d.replace(func() { d.pkg.Instagram = c })
}

// ReplaceX swaps in freshly generated X content.
func (d *Document) ReplaceX(c XContent) {
	d.replace(func() { d.pkg.X = c })
}

// ReplaceYouTube swaps in freshly generated YouTube content.
func (d *Document) ReplaceYouTube(c YouTubeContent) {
	d.replace(func() { d.pkg.YouTube = c })
}

func (d *Document) replace(apply func()) {
	d.mu.Lock()
	apply()
	subs := d.subs
	d.mu.Unlock()
	for _, fn := range subs {
		fn()
	}
}

func clonePackage(p Package) Package {
	out := p
	out.Facebook.Headlines = append([]string(nil), p.Facebook.Headlines...)
	out.Instagram.OnScreenText = append([]string(nil), p.Instagram.OnScreenText...)
	out.Instagram.ReelScript = append([]string(nil), p.Instagram.ReelScript...)
	out.Instagram.Hashtags = append([]string(nil), p.Instagram.Hashtags...)
	out.X.ThreadReplies = append([]string(nil), p.X.ThreadReplies...)
	out.CarouselSlides = append([]string(nil), p.CarouselSlides...)
	out.Schedule.PostingOrder = append([]string(nil), p.Schedule.PostingOrder...)
	if p.Schedule.RecommendedTimes != nil {
		out.Schedule.RecommendedTimes = make(map[string]string, len(p.Schedule.RecommendedTimes))
		for k, v := range p.Schedule.RecommendedTimes {
			out.Schedule.RecommendedTimes[k] = v
		}
	}
	return out
}
