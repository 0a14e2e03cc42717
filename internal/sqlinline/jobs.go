package sqlinline

const QInsertStartedJob = `--sql a1cf090e-73bf-4a60-a566-61d8467470e5
insert into jobs (video_id, task_id, task_type, status, started_at)
values ($1, $2, $3, 'started', now())
returning id, started_at;
`

const QInsertPendingJob = `--sql b1498095-1832-4ec5-9141-8b78c7fbf416
insert into jobs (video_id, task_id, task_type, status)
values ($1, $2, $3, 'pending')
returning id;
`

const QResumePendingJob = `--sql 95d5e7fd-9531-49dd-9495-88f7d79be720
update jobs
set status = 'started',
    started_at = now()
where id = (
    select id
    from jobs
    where video_id = $1
      and task_type = $2
      and task_id = $3
      and status = 'pending'
    order by id desc
    limit 1
)
returning id, started_at;
`

const QCompleteJob = `--sql 3ac449cc-dd42-4f90-9474-c3498fa98f42
update jobs
set status = 'completed',
    completed_at = now()
where id = $1;
`

const QFailJob = `--sql 68d318c0-3ccf-46f1-ac3e-359471cb4326
update jobs
set status = 'failed',
    error_message = $2,
    completed_at = now()
where id = $1;
`

const QSelectJobsByVideo = `--sql 5e0a173e-e0ab-4579-bdbf-12c1be08684d
select id, video_id, task_id, task_type, status, started_at, completed_at, error_message
from jobs
where video_id = $1
order by id;
`
