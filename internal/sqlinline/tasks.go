package sqlinline

const QEnqueueTask = `--sql b4da4ff6-2d69-42be-81be-e54f48048ded
insert into tasks (id, task_type, video_id, status, max_attempts, next_run_at)
values ($1, $2, $3, 'queued', $4, now());
`

const QClaimTask = `--sql be51e06c-94d8-4862-9ee4-0032bfad00bb
with next_task as (
    select id
    from tasks
    where status = 'queued'
      and next_run_at <= now()
    order by created_at asc
    for update skip locked
    limit 1
),
claimed as (
    update tasks
    set status = 'running',
        attempts = attempts + 1,
        updated_at = now()
    where id in (select id from next_task)
    returning id, task_type, video_id, attempts, max_attempts
)
select * from claimed;
`

const QCompleteTask = `--sql 900b0b86-2835-4ff0-9800-6e2d213fc7ae
update tasks
set status = 'completed',
    error = '',
    updated_at = now()
where id = $1;
`

const QRetryTask = `--sql 7d9d0e50-23c8-4a1b-99d4-5f684ad86a0c
update tasks
set status = 'queued',
    error = $2,
    next_run_at = $3,
    updated_at = now()
where id = $1;
`

const QFailTask = `--sql 0d7aecd6-d4d2-4698-a7ca-501295aea314
update tasks
set status = 'failed',
    error = $2,
    updated_at = now()
where id = $1;
`
