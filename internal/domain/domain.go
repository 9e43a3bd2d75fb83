package domain

import (
	"github.com/hakmun-app/hakmun-backend/internal/domain/auth"
	"github.com/hakmun-app/hakmun-backend/internal/domain/classroom"
	"github.com/hakmun-app/hakmun-backend/internal/domain/content"
	"github.com/hakmun-app/hakmun-backend/internal/domain/media"
	"github.com/hakmun-app/hakmun-backend/internal/domain/registry"
	"github.com/hakmun-app/hakmun-backend/internal/domain/user"
)

type User = user.User
type Handle = user.Handle
type AuthIdentity = auth.AuthIdentity

type RegistryItem = registry.Item
type RegistrySnapshot = registry.Snapshot
type ReviewQueueEntry = registry.ReviewQueueEntry
type ModerationAction = registry.ModerationAction
type ShareGrant = registry.ShareGrant

type ReadingItem = content.ReadingItem
type Sentence = content.Sentence
type Pattern = content.Pattern
type VocabPin = content.VocabPin

type MediaAsset = media.Asset

type Class = classroom.Class
type ClassMembership = classroom.ClassMembership

const (
	RoleStudent = user.RoleStudent
	RoleTeacher = user.RoleTeacher

	HandleKindPrimary = user.HandleKindPrimary
	HandleKindAlias   = user.HandleKindAlias

	ProviderApple = auth.ProviderApple

	AudiencePersonal = registry.AudiencePersonal
	AudienceGlobal   = registry.AudienceGlobal

	GlobalStatePreliminary = registry.GlobalStatePreliminary
	GlobalStateApproved    = registry.GlobalStateApproved
	GlobalStateRejected    = registry.GlobalStateRejected

	StatusActive      = registry.StatusActive
	StatusUnderReview = registry.StatusUnderReview

	ContentTypeReadingItem = registry.ContentTypeReadingItem
	ContentTypeSentence    = registry.ContentTypeSentence
	ContentTypePattern     = registry.ContentTypePattern

	ActionNeedsReview     = registry.ActionNeedsReview
	ActionRestore         = registry.ActionRestore
	ActionApprove         = registry.ActionApprove
	ActionReject          = registry.ActionReject
	ActionKeepUnderReview = registry.ActionKeepUnderReview
	ActionSetPreliminary  = registry.ActionSetPreliminary
	ActionSetGlobal       = registry.ActionSetGlobal
	ActionSetPersonal     = registry.ActionSetPersonal

	ResolutionRestored        = registry.ResolutionRestored
	ResolutionKeptUnderReview = registry.ResolutionKeptUnderReview
	ResolutionRejected        = registry.ResolutionRejected

	GrantTypeUser  = registry.GrantTypeUser
	GrantTypeClass = registry.GrantTypeClass
)
