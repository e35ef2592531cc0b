package permission

// Permission is a well-known authority. Its string value is the identifier
// written into tokens; FullName returns the product path shown to users.
type Permission string

const (
	OrganizerAll      Permission = "QORGANIZER_ALL"
	OrganizerWriter   Permission = "QORGANIZER_WRITER"
	OrganizerEditor   Permission = "QORGANIZER_EDITOR"
	OrganizerCreator  Permission = "QORGANIZER_CREATOR"
	OrganizerApprover Permission = "QORGANIZER_APPROVER"
	OrganizerMedia    Permission = "QORGANIZER_MEDIA"

	PlannerTeacher   Permission = "QPLANNER_TEACHER"
	PlannerPublisher Permission = "QPLANNER_PUBLISHER"
	PlannerWriter    Permission = "QPLANNER_WRITER"
	PlannerEditor    Permission = "QPLANNER_EDITOR"

	PlayerStudent Permission = "QPLAYER_STUDENT"
	PlayerTeacher Permission = "QPLAYER_TEACHER"

	MonitorStudent   Permission = "QMONITOR_STUDENT"
	MonitorTeacher   Permission = "QMONITOR_TEACHER"
	MonitorManager   Permission = "QMONITOR_MANAGER"
	MonitorSchool    Permission = "QMONITOR_SCHOOL"
	MonitorNetwork   Permission = "QMONITOR_NETWORK"
	MonitorPublisher Permission = "QMONITOR_PUBLISHER"

	UserManagement Permission = "USER_MANAGEMENT"
	Licensing      Permission = "LICENSING"
)

// Deprecated organizer permissions. They still decode and may still be
// issued, but new code should not grant them.
const (
	OrgBlockMeta  Permission = "QORG_BLOCK_META"
	OrgTaskMeta   Permission = "QORG_TASK_META"
	OrgMainNext   Permission = "QORG_MAIN_NEXT"
	OrgMeso       Permission = "QORG_MESO"
	OrgExistingLO Permission = "QORG_EXISTING_LO"

	OrgMesoMove   Permission = "QORG_MESO_MOVE"
	OrgMesoDelete Permission = "QORG_MESO_DELETE"
	OrgMesoSubmit Permission = "QORG_MESO_SUBMIT"

	OrgCEFPrevious   Permission = "QORG_CEF_PREVIOUS"
	OrgCEFMenu       Permission = "QORG_CEF_MENU"
	OrgCEFReview     Permission = "QORG_CEF_REVIEW"
	OrgCEFRewrite    Permission = "QORG_CEF_REWRITE"
	OrgCEFApproved   Permission = "QORG_CEF_APPROVED"
	OrgCEFSubmit     Permission = "QORG_CEF_SUBMIT"
	OrgCEFPreview    Permission = "QORG_CEF_PREVIEW"
	OrgCEFNext       Permission = "QORG_CEF_NEXT"
	OrgCEFMediaState Permission = "QORG_CEF_MEDIA_STATE"
	OrgCEFMediaURL   Permission = "QORG_CEF_MEDIA_URL"
	OrgCEFMediaAdd   Permission = "QORG_CEF_MEDIA_ADD"

	OrganizerTeacher   Permission = "QORGANIZER_TEACHER"
	OrganizerPublisher Permission = "QORGANIZER_PUBLISHER"
	OrganizerWhatever  Permission = "QORGANIZER_WHATEVER"
)

type catalogEntry struct {
	fullName   string
	deprecated bool
}

// The Planner, Player and Monitor paths use U+2010 HYPHEN, not ASCII '-'.
var catalog = map[Permission]catalogEntry{
	OrganizerAll:      {fullName: "Q-Organizer/all"},
	OrganizerWriter:   {fullName: "Q-Organizer/writer"},
	OrganizerEditor:   {fullName: "Q-Organizer/editor"},
	OrganizerCreator:  {fullName: "Q-Organizer/creator"},
	OrganizerApprover: {fullName: "Q-Organizer/approver"},
	OrganizerMedia:    {fullName: "Q-Organizer/media"},

	PlannerTeacher:   {fullName: "Q‐Planner/teacher"},
	PlannerPublisher: {fullName: "Q‐Planner/publisher"},
	PlannerWriter:    {fullName: "Q‐Planner/writer"},
	PlannerEditor:    {fullName: "Q‐Planner/editor"},

	PlayerStudent: {fullName: "Q‐Player/student"},
	PlayerTeacher: {fullName: "Q‐Player/teacher"},

	MonitorStudent:   {fullName: "Q‐Monitor/student"},
	MonitorTeacher:   {fullName: "Q‐Monitor/teacher"},
	MonitorManager:   {fullName: "Q‐Monitor/manager"},
	MonitorSchool:    {fullName: "Q‐Monitor/school"},
	MonitorNetwork:   {fullName: "Q‐Monitor/network"},
	MonitorPublisher: {fullName: "Q‐Monitor/publisher"},

	UserManagement: {fullName: "user_management"},
	Licensing:      {fullName: "licensing"},

	OrgBlockMeta:       {fullName: "Q-Organizer/Main/block metadata", deprecated: true},
	OrgTaskMeta:        {fullName: "Q-Organizer/Main/task metadata", deprecated: true},
	OrgMainNext:        {fullName: "Q-Organizer/Main/next", deprecated: true},
	OrgMeso:            {fullName: "Q-Organizer/Main/meso", deprecated: true},
	OrgExistingLO:      {fullName: "Q-Organizer/Main/existing LO", deprecated: true},
	OrgMesoMove:        {fullName: "Q-Organizer/Meso/move", deprecated: true},
	OrgMesoDelete:      {fullName: "Q-Organizer/Meso/delete", deprecated: true},
	OrgMesoSubmit:      {fullName: "Q-Organizer/Meso/submit", deprecated: true},
	OrgCEFPrevious:     {fullName: "Q-Organizer/CEF/previous", deprecated: true},
	OrgCEFMenu:         {fullName: "Q-Organizer/CEF/menu", deprecated: true},
	OrgCEFReview:       {fullName: "Q-Organizer/CEF/review", deprecated: true},
	OrgCEFRewrite:      {fullName: "Q-Organizer/CEF/rewrite", deprecated: true},
	OrgCEFApproved:     {fullName: "Q-Organizer/CEF/approved", deprecated: true},
	OrgCEFSubmit:       {fullName: "Q-Organizer/CEF/submit", deprecated: true},
	OrgCEFPreview:      {fullName: "Q-Organizer/CEF/preview", deprecated: true},
	OrgCEFNext:         {fullName: "Q-Organizer/CEF/next", deprecated: true},
	OrgCEFMediaState:   {fullName: "Q-Organizer/CEF/media state", deprecated: true},
	OrgCEFMediaURL:     {fullName: "Q-Organizer/CEF/media URL", deprecated: true},
	OrgCEFMediaAdd:     {fullName: "Q-Organizer/CEF/add media", deprecated: true},
	OrganizerTeacher:   {fullName: "Q-Organizer/teacher", deprecated: true},
	OrganizerPublisher: {fullName: "Q-Organizer/publisher", deprecated: true},
	OrganizerWhatever:  {fullName: "Q-Organizer/whateves", deprecated: true},
}

func (p Permission) String() string {
	return string(p)
}

// FullName returns the product path of p, or "" for unknown permissions.
func (p Permission) FullName() string {
	return catalog[p].fullName
}

// Known reports whether p is in the catalog.
func (p Permission) Known() bool {
	_, ok := catalog[p]
	return ok
}

// Deprecated reports whether p is a legacy organizer permission.
func (p Permission) Deprecated() bool {
	return catalog[p].deprecated
}

// Names converts perms to their token identifiers, preserving order.
func Names(perms []Permission) []string {
	if len(perms) == 0 {
		return nil
	}
	out := make([]string, len(perms))
	for i, p := range perms {
		out[i] = string(p)
	}
	return out
}

// Lookup resolves a token identifier back to a catalog Permission.
func Lookup(name string) (Permission, bool) {
	p := Permission(name)
	if !p.Known() {
		return "", false
	}
	return p, true
}

// All returns every catalog permission. When includeDeprecated is false the
// legacy organizer entries are skipped. Order is unspecified.
func All(includeDeprecated bool) []Permission {
	out := make([]Permission, 0, len(catalog))
	for p, e := range catalog {
		if e.deprecated && !includeDeprecated {
			continue
		}
		out = append(out, p)
	}
	return out
}
