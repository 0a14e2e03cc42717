package sqlinline

const QInsertVideo = `--sql 1613470e-3b9a-4c3e-b9b7-2085a0660368
insert into videos (instagram_url, status)
values ($1, $2)
returning id, created_at, updated_at;
`

const QSelectVideo = `--sql 1b02ed72-6d83-4a11-81b1-b284499504b2
select id, instagram_url, instagram_media_id, local_path, storage_url,
       tiktok_url, tiktok_video_id, caption, hashtags, status, error_message,
       created_at, updated_at
from videos
where id = $1;
`

const QSelectVideos = `--sql 9db0d0be-50d6-4b32-89dc-f7b0770b3a46
select id, instagram_url, instagram_media_id, local_path, storage_url,
       tiktok_url, tiktok_video_id, caption, hashtags, status, error_message,
       created_at, updated_at
from videos
where ($1 = '' or status = $1)
order by created_at desc
offset $2 limit $3;
`

const QUpdateVideoOutputs = `--sql af64ed22-0fbe-4c38-9e20-a8f48ec10d21
update videos
set instagram_media_id = $2,
    local_path = $3,
    storage_url = $4,
    tiktok_url = $5,
    tiktok_video_id = $6,
    caption = $7,
    hashtags = $8,
    updated_at = now()
where id = $1;
`

const QSetVideoStatus = `--sql d616b574-121a-40f2-85db-18bd42f4374d
update videos
set status = $2,
    error_message = $3,
    updated_at = now()
where id = $1;
`

const QUpdateVideoContent = `--sql 40a84b26-faa5-490a-aea2-a2238ce8d28d
update videos
set caption = coalesce($2, caption),
    hashtags = coalesce($3, hashtags),
    updated_at = now()
where id = $1
returning id, instagram_url, instagram_media_id, local_path, storage_url,
          tiktok_url, tiktok_video_id, caption, hashtags, status, error_message,
          created_at, updated_at;
`

const QDeleteVideo = `--sql fea1c5f0-35f3-45fa-b016-827ef3f550fc
delete from videos
where id = $1;
`

const QCountVideosByStatus = `--sql 9e9695d7-b5c6-4029-ba8b-f340be88e2ba
select status, count(*)
from videos
group by status;
`
