package sqlinline

const QSelectLatestToken = `--sql 9f4321a5-091a-4a0f-a222-5c5f3f230461
select id, open_id, access_token, refresh_token, scope, expires_at, created_at, updated_at
from tiktok_tokens
order by updated_at desc
limit 1;
`

const QInsertToken = `--sql cd0376b6-17eb-4a51-8725-1e56676666e8
insert into tiktok_tokens (open_id, access_token, refresh_token, scope, expires_at)
values ($1, $2, $3, $4, $5)
returning id, created_at, updated_at;
`

const QUpdateToken = `--sql 7a9f4861-f50c-4c54-bdbd-9a7551932dbd
update tiktok_tokens
set open_id = $2,
    access_token = $3,
    refresh_token = $4,
    scope = $5,
    expires_at = $6,
    updated_at = now()
where id = $1;
`
