package domain

import (
	"github.com/speechsmith/speechsmith-backend/internal/domain/jobs"
	"github.com/speechsmith/speechsmith-backend/internal/domain/speech"
)

// Aliases so callers can import a single types package.

type Speech = speech.Speech
type SpeechStatus = speech.SpeechStatus
type HumanizationPass = speech.HumanizationPass
type PassType = speech.PassType
type CriticType = speech.CriticType
type CriticFeedback = speech.CriticFeedback
type ClicheAnalysis = speech.ClicheAnalysis
type QualityIssue = speech.QualityIssue
type IssueType = speech.IssueType
type IssueSeverity = speech.IssueSeverity
type IssueStatus = speech.IssueStatus
type ExportBlock = speech.ExportBlock

type JobRun = jobs.JobRun

var TerminalIssueStatuses = speech.TerminalIssueStatuses

const (
	SpeechStatusDraft      = speech.SpeechStatusDraft
	SpeechStatusHumanizing = speech.SpeechStatusHumanizing
	SpeechStatusReviewed   = speech.SpeechStatusReviewed
	SpeechStatusExported   = speech.SpeechStatusExported

	PassTypeRhetoric = speech.PassTypeRhetoric
	PassTypePersona  = speech.PassTypePersona
	PassTypeCritic1  = speech.PassTypeCritic1
	PassTypeCritic2  = speech.PassTypeCritic2
	PassTypeReferee  = speech.PassTypeReferee
	PassTypeCultural = speech.PassTypeCultural

	CriticTypeA = speech.CriticTypeA
	CriticTypeB = speech.CriticTypeB

	IssueTypeFactCheck      = speech.IssueTypeFactCheck
	IssueTypePlagiarism     = speech.IssueTypePlagiarism
	IssueTypeRiskClaim      = speech.IssueTypeRiskClaim
	IssueTypeSensitiveTopic = speech.IssueTypeSensitiveTopic
	IssueTypeCliche         = speech.IssueTypeCliche

	SeverityLow      = speech.SeverityLow
	SeverityMedium   = speech.SeverityMedium
	SeverityHigh     = speech.SeverityHigh
	SeverityCritical = speech.SeverityCritical

	IssueStatusUnresolved    = speech.IssueStatusUnresolved
	IssueStatusResolved      = speech.IssueStatusResolved
	IssueStatusAcknowledged  = speech.IssueStatusAcknowledged
	IssueStatusFalsePositive = speech.IssueStatusFalsePositive

	JobStatusQueued    = jobs.JobStatusQueued
	JobStatusRunning   = jobs.JobStatusRunning
	JobStatusSucceeded = jobs.JobStatusSucceeded
	JobStatusFailed    = jobs.JobStatusFailed
	JobStatusCanceled  = jobs.JobStatusCanceled
)
