// Package schedule fires the daily batch sweep. A DailyTrigger owns a cron
// entry at the configured local time and, optionally, a catch-up run at
// start-up so a sweep missed while the process was down still happens.
package schedule
