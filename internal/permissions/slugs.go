package permissions

// constants for permission checks
// seeded in db/migrations/20250301000007_seed_permission_definitions.sql
const (
	SetNutritionTargets = "set_nutrition_targets" // Set calorie/macro targets (exclusive)
	SetWeightTargets    = "set_weight_targets"    // Set weight targets (exclusive)
	ViewNutrition       = "view_nutrition"        // Read the food log
	AssignProgrammes    = "assign_programmes"     // Assign training programmes (exclusive, verified only)
	EditRoutines        = "edit_routines"         // Edit workout routines
	ViewCheckIns        = "view_check_ins"        // Read client check-ins
	ReviewCheckIns      = "review_check_ins"      // Respond to check-ins (exclusive, verified only)
	ViewProgressPhotos  = "view_progress_photos"  // View progress photos
	MessageClient       = "message_client"        // Direct messaging
)

// Grant statuses
const (
	GrantStatusGranted = "granted"
	GrantStatusRevoked = "revoked"
)

// User roles
const (
	RoleClient       = "client"
	RoleProfessional = "professional"
	RoleAdmin        = "admin"
)

// Relationship statuses
const (
	RelationshipActive = "active"
	RelationshipEnded  = "ended"
)

// Request statuses
const (
	RequestStatusPending  = "pending"
	RequestStatusApproved = "approved"
	RequestStatusDenied   = "denied"
	RequestStatusExpired  = "expired"
)

// Invitation statuses
const (
	InvitationPending  = "pending"
	InvitationAccepted = "accepted"
	InvitationExpired  = "expired"
)

// Who recorded a grant
const (
	GrantedByClient = "client"
	GrantedByPreset = "professional_preset"
	GrantedByAdmin  = "admin"
	GrantedBySystem = "system"
)

// Actor types for audit events
const (
	ActorClient       = "client"
	ActorProfessional = "professional"
	ActorAdmin        = "admin"
	ActorSystem       = "system"
)

// Audit event types
const (
	EventGrant              = "grant"
	EventRevoke             = "revoke"
	EventTransfer           = "transfer"
	EventGrantRefused       = "grant_refused"
	EventToggleExclusivity  = "toggle_exclusivity"
	EventToggleEnabled      = "toggle_enabled"
	EventForceConnect       = "force_connect"
	EventForceDisconnect    = "force_disconnect"
	EventPresetApplied      = "preset_applied"
	EventPresetUpdated      = "preset_updated"
	EventPresetDeleted      = "preset_deleted"
	EventInvitationAccepted = "invitation_accepted"
	EventRequestExpired     = "request_expired"
	EventDuplicatesResolved = "duplicates_resolved"
)

// MinReasonLength is the shortest justification accepted on admin-originated
// mutations. Anything shorter fails closed.
const MinReasonLength = 10
