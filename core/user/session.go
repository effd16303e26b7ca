package user

// Session is the identity of the logged-in User. It is created on login, cleared on logout,
// and handed explicitly to every operation that needs to know who is acting.
type Session struct {
	UserID     string `json:"user_id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	ClassLabel string `json:"class_label,omitempty"`
}

func NewSession(usr User) *Session {
	return &Session{
		UserID:     usr.ID,
		Name:       usr.Name,
		Email:      usr.Email,
		Role:       usr.Role,
		ClassLabel: usr.ClassLabel,
	}
}

func (s *Session) Active() bool { return s != nil && s.UserID != "" }

func (s *Session) IsAdmin() bool   { return s.Active() && s.Role == RoleAdmin }
func (s *Session) IsTeacher() bool { return s.Active() && s.Role == RoleTeacher }
func (s *Session) IsParent() bool  { return s.Active() && s.Role == RoleParent }

// CanAccessClass tells whether the session may read or mark attendance of classLabel.
// Admins may access any class; teachers only their own.
func (s *Session) CanAccessClass(classLabel string) bool {
	if s.IsAdmin() {
		return true
	}
	return s.IsTeacher() && s.ClassLabel != "" && s.ClassLabel == classLabel
}

// Clear logs the session out.
func (s *Session) Clear() {
	if s != nil {
		*s = Session{}
	}
}
