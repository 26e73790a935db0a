package models

import "time"

// RoleCount is one bucket of the member-per-role distribution.
type RoleCount struct {
	RoleID uint   `json:"role_id"`
	Role   string `json:"role"`
	Count  int64  `json:"count"`
}

// MemberStats is the dashboard headline.
type MemberStats struct {
	TotalMembers int64       `json:"totalMembers"`
	Roles        []RoleCount `json:"roles"`
}

// ActivityCounts counts member changes inside a trailing window.
type ActivityCounts struct {
	Added   int64 `json:"added"`
	Updated int64 `json:"updated"`
	Deleted int64 `json:"deleted"`
}

// RecentActivity is a dashboard row of the latest audit entries.
type RecentActivity struct {
	Timestamp   time.Time `json:"timestamp"`
	Action      Action    `json:"action"`
	PerformedBy string    `json:"performedBy"`
}

// DashboardOverview bundles every dashboard aggregate.
type DashboardOverview struct {
	Stats          MemberStats      `json:"stats"`
	Recent         []RecentActivity `json:"recent"`
	Distribution   []RoleCount      `json:"roles"`
	ActivityCounts ActivityCounts   `json:"recentActivityCounts"`
}
