package analyzer

import (
	"go-tamper-inspector/pkg/models"
)

// VerificationResult is an alias to the shared models.VerificationResult
type VerificationResult = models.VerificationResult

// AnalysisScores is an alias to the shared models.AnalysisScores
type AnalysisScores = models.AnalysisScores
