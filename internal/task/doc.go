// Package task runs generation jobs one at a time in submission order.
// The Queue owns the pending jobs and the busy flag, hands each job to a
// Worker and resolves the job's Future with the outcome. It also keeps the
// job history up to date and prunes it on a cron schedule.
package task
